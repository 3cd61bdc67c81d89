/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

// Package notify contains the sinks that debug session snapshots are published to.
// None of the sinks block the session loop for longer than it takes to enqueue a snapshot.
package notify
