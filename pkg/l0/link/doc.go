// Package link provides the L0 serial link to the motion controller.
package link

// The L0 link is a point-to-point request/response protocol between the
// host and the motion controller firmware over a UART.
//
// A command frame is
//
//	CMD DATA CHK TERM            (8-bit command)
//	CMD DATA_HI DATA_LO CHK TERM (16-bit command)
//
// where CHK is the XOR of all command and data bytes and ChecksumMask,
// and TERM is Terminator. There is no length prefix and no escaping, so
// data bytes must never equal Terminator. A response uses the same tail
// shape and is decoded from its end: the byte before the terminator is
// the checksum and the two bytes before it are the status payload.
//
// StartChar is part of the historical protocol definition but is
// neither sent nor expected by the firmware.
//
// Producer: host (commands), L0 firmware (responses)
// Consumer: L0 firmware (commands), host (responses)
