// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// scriptedServer plays the upstream RFB server's half of the handshake
// over a net.Pipe, the way mock_server_test.go scripts a peer for the
// client library this proxy was distilled from.
func scriptedServer(t *testing.T, conn net.Conn, securityTypes []byte, reason string, serverInit ServerInit) {
	t.Helper()
	go func() {
		write(t, conn, Version{Major: 3, Minor: 8}.Encode(nil))

		clientVersion := read(t, conn, versionSize)
		_ = clientVersion

		if len(securityTypes) == 0 {
			write(t, conn, []byte{0})
			write(t, conn, encodeRFBString(nil, reason))
			return
		}

		typesMsg := append([]byte{byte(len(securityTypes))}, securityTypes...)
		write(t, conn, typesMsg)

		_ = read(t, conn, 1) // chosen security type

		write(t, conn, SecurityResultOK.Encode(nil))

		_ = read(t, conn, 1) // ClientInit

		write(t, conn, serverInit.Encode(nil))
	}()
}

func write(t *testing.T, conn net.Conn, p []byte) {
	t.Helper()
	if _, err := conn.Write(p); err != nil {
		t.Errorf("write: %v", err)
	}
}

func read(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Errorf("read: %v", err)
	}
	return buf
}

func TestRunHandshake_Success(t *testing.T) {
	clientOurs, clientTheirs := net.Pipe()
	serverOurs, serverTheirs := net.Pipe()
	defer clientOurs.Close()
	defer clientTheirs.Close()
	defer serverOurs.Close()
	defer serverTheirs.Close()

	wantInit := ServerInit{
		Width:  1024,
		Height: 768,
		PixelFormat: PixelFormat{
			BPP: 32, Depth: 24, TrueColor: true,
			RedMax: 255, GreenMax: 255, BlueMax: 255,
			RedShift: 16, GreenShift: 8,
		},
		Name: "test",
	}
	scriptedServer(t, serverTheirs, []byte{byte(SecurityNone)}, "", wantInit)

	go func() {
		// Fake client: echoes version, sends chosen security type and
		// ClientInit, the same spliced shape the driver expects.
		_ = read(t, clientTheirs, versionSize) // server version, relayed
		write(t, clientTheirs, Version{Major: 3, Minor: 8}.Encode(nil))
		_ = read(t, clientTheirs, len(SecurityTypes{SecurityNone}.Encode(nil))) // security type count+list relayed
		write(t, clientTheirs, SecurityNone.Encode(nil))
		_ = read(t, clientTheirs, 4) // SecurityResult relayed
		write(t, clientTheirs, ClientInit{Shared: true}.Encode(nil))
		_ = read(t, clientTheirs, len(wantInit.Encode(nil))) // ServerInit relayed
	}()

	client := NewFramedConn(clientOurs)
	server := NewFramedConn(serverOurs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pf, err := RunHandshake(ctx, client, server, &NoOpLogger{})
	if err != nil {
		t.Fatalf("RunHandshake: %v", err)
	}
	if pf != wantInit.PixelFormat {
		t.Fatalf("RunHandshake pixel format = %+v, want %+v", pf, wantInit.PixelFormat)
	}
}

// scriptedLegacyServer plays the RFB 3.3 handshake, where there is no
// SecurityTypes list: the server sends a single 4-byte word that is itself
// the chosen security type (or zero for "invalid", followed by a reason).
func scriptedLegacyServer(t *testing.T, conn net.Conn, securityWord uint32, reason string, serverInit ServerInit) {
	t.Helper()
	go func() {
		write(t, conn, Version{Major: 3, Minor: 3}.Encode(nil))

		_ = read(t, conn, versionSize) // client version

		write(t, conn, SecurityResult(securityWord).Encode(nil))

		if securityWord == 0 {
			write(t, conn, encodeRFBString(nil, reason))
			return
		}
		if securityWord != uint32(SecurityNone) {
			return // the proxy rejects the type and sends no ClientInit
		}

		_ = read(t, conn, 1) // ClientInit

		write(t, conn, serverInit.Encode(nil))
	}()
}

func TestRunHandshake_LegacySecurityWord_AcceptsNone(t *testing.T) {
	clientOurs, clientTheirs := net.Pipe()
	serverOurs, serverTheirs := net.Pipe()
	defer clientOurs.Close()
	defer clientTheirs.Close()
	defer serverOurs.Close()
	defer serverTheirs.Close()

	wantInit := ServerInit{
		Width:  800,
		Height: 600,
		PixelFormat: PixelFormat{
			BPP: 32, Depth: 24, TrueColor: true,
			RedMax: 255, GreenMax: 255, BlueMax: 255,
			RedShift: 16, GreenShift: 8,
		},
		Name: "legacy",
	}
	scriptedLegacyServer(t, serverTheirs, uint32(SecurityNone), "", wantInit)

	go func() {
		_ = read(t, clientTheirs, versionSize) // server version, relayed
		write(t, clientTheirs, Version{Major: 3, Minor: 3}.Encode(nil))
		_ = read(t, clientTheirs, 4) // chosen security word relayed, must not be mistaken for a SecurityResult
		write(t, clientTheirs, ClientInit{Shared: true}.Encode(nil))
		_ = read(t, clientTheirs, len(wantInit.Encode(nil))) // ServerInit relayed
	}()

	client := NewFramedConn(clientOurs)
	server := NewFramedConn(serverOurs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pf, err := RunHandshake(ctx, client, server, &NoOpLogger{})
	if err != nil {
		t.Fatalf("RunHandshake: %v", err)
	}
	if pf != wantInit.PixelFormat {
		t.Fatalf("RunHandshake pixel format = %+v, want %+v", pf, wantInit.PixelFormat)
	}
}

func TestRunHandshake_LegacySecurityWord_RejectsAuthenticated(t *testing.T) {
	clientOurs, clientTheirs := net.Pipe()
	serverOurs, serverTheirs := net.Pipe()
	defer clientOurs.Close()
	defer clientTheirs.Close()
	defer serverOurs.Close()
	defer serverTheirs.Close()

	scriptedLegacyServer(t, serverTheirs, 2 /* VNC Authentication */, "", ServerInit{})

	go func() {
		_ = read(t, clientTheirs, versionSize)
		write(t, clientTheirs, Version{Major: 3, Minor: 3}.Encode(nil))
		_ = read(t, clientTheirs, 4) // chosen security word relayed
	}()

	client := NewFramedConn(clientOurs)
	server := NewFramedConn(serverOurs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RunHandshake(ctx, client, server, &NoOpLogger{})
	if !IsProxyError(err, ErrProtocol) {
		t.Fatalf("RunHandshake: got %v, want ErrProtocol", err)
	}
}

func TestRunHandshake_LegacySecurityWord_ZeroReadsReason(t *testing.T) {
	clientOurs, clientTheirs := net.Pipe()
	serverOurs, serverTheirs := net.Pipe()
	defer clientOurs.Close()
	defer clientTheirs.Close()
	defer serverOurs.Close()
	defer serverTheirs.Close()

	scriptedLegacyServer(t, serverTheirs, 0, "legacy failure", ServerInit{})

	go func() {
		_ = read(t, clientTheirs, versionSize)
		write(t, clientTheirs, Version{Major: 3, Minor: 3}.Encode(nil))
		_ = read(t, clientTheirs, 4) // chosen security word (zero) relayed
	}()

	client := NewFramedConn(clientOurs)
	server := NewFramedConn(serverOurs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RunHandshake(ctx, client, server, &NoOpLogger{})
	if !IsProxyError(err, ErrProtocol) {
		t.Fatalf("RunHandshake: got %v, want ErrProtocol", err)
	}
	var pe *ProxyError
	if !errors.As(err, &pe) || pe.Message != "legacy failure" {
		t.Fatalf("RunHandshake: got %v, want reason %q", err, "legacy failure")
	}
}

func TestRunHandshake_ProtocolFailure(t *testing.T) {
	clientOurs, clientTheirs := net.Pipe()
	serverOurs, serverTheirs := net.Pipe()
	defer clientOurs.Close()
	defer clientTheirs.Close()
	defer serverOurs.Close()
	defer serverTheirs.Close()

	scriptedServer(t, serverTheirs, nil, "bad", ServerInit{})

	go func() {
		_ = read(t, clientTheirs, versionSize)
		write(t, clientTheirs, Version{Major: 3, Minor: 8}.Encode(nil))
		_ = read(t, clientTheirs, 1) // empty security-type count relayed
	}()

	client := NewFramedConn(clientOurs)
	server := NewFramedConn(serverOurs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RunHandshake(ctx, client, server, &NoOpLogger{})
	if !IsProxyError(err, ErrProtocol) {
		t.Fatalf("RunHandshake: got %v, want ErrProtocol", err)
	}
}
