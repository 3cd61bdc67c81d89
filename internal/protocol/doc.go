/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

/*
Package protocol implements the client side of the joybug remote debugging protocol.

# Wire Format

Every message is a JSON object tagged with a "type" property and framed with a
Content-Length header, the same base-message framing used by the Debug Adapter Protocol:

	Content-Length: 64\r\n
	\r\n
	{"type":"Event","event":{"type":"DllLoaded","pid":1,"tid":1,...}}

Debug events are nested under the "event" property of an Event response and carry their
own "type" tag.

# Request/Response Flow

A Client issues one request at a time and reads exactly one response for it. The Launch
method is the exception: after the launch request the debug server streams responses, and
every Event response must be acknowledged with a Continue request before the server
produces the next one. The handler passed to Launch decides, per response, whether the
loop keeps going.

# Key Components

  - Client: connection to a debug server (Dial, Launch, SendAndReceive, Close)
  - Transport: framed message I/O over a stream connection
  - Request, Response, DebugEvent: closed sets of protocol messages
  - TestServer: scripted in-process debug server for tests
*/
package protocol
