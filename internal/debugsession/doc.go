/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

// Package debugsession drives debug sessions against a joybug debug server.
//
// A session runs two protocol connections. The primary connection launches the debuggee
// and carries the debug loop: for every stop event the controller updates the session model
// (modules, threads, current event), fetches the register context of the stopped thread over
// the auxiliary connection, publishes a snapshot and then waits for the operator to decide
// whether the debuggee should continue or the session should stop.
//
// Session state machine:
//
//	Initializing -> Connected -> Running <-> Paused -> Finished
//
// Error(message) can be reached from any non-terminal state. Finished and Error are terminal.
package debugsession
