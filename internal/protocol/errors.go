/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"errors"
)

var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")

	// ErrUnknownMessageType is returned when a message carries a tag this client does not know.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrUnexpectedResponse is returned when a response does not match the request that was sent.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrLaunchFailed is returned when the launch loop terminates abnormally.
	ErrLaunchFailed = errors.New("debug loop failed")
)
