// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package rfb

import "fmt"

// versionSize is the wire size of a Version message: "RFB xxx.yyy\n".
const versionSize = 12

// Version is a parsed RFB protocol version.
type Version struct {
	Major, Minor uint
}

// String renders the version in its wire form, e.g. "RFB 003.008\n".
func (v Version) String() string {
	return fmt.Sprintf("RFB %03d.%03d\n", v.Major, v.Minor)
}

// Before reports whether v is strictly older than other.
func (v Version) Before(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Min returns the older of v and other. The handshake driver negotiates on
// this value rather than hard-coding a branch, per the redesign decision in
// SPEC_FULL.md resolving the version/security-result bug noted in the
// specification's open questions.
func Min(v, other Version) Version {
	if other.Before(v) {
		return other
	}
	return v
}

// decodeVersion decodes a 12-byte Version string from the front of data.
func decodeVersion(data []byte) (Version, int, error) {
	if len(data) < versionSize {
		return Version{}, 0, ErrShortBuffer
	}
	raw := data[:versionSize]
	var v Version
	n, err := fmt.Sscanf(string(raw), "RFB %d.%d\n", &v.Major, &v.Minor)
	if n != 2 || err != nil {
		return Version{}, 0, decodeError("decodeVersion", fmt.Sprintf("malformed protocol version %q", raw), err)
	}
	return v, versionSize, nil
}

// Encode appends the 12-byte wire representation of v to buf.
func (v Version) Encode(buf []byte) []byte {
	return append(buf, []byte(v.String())...)
}
