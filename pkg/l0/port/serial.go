package port

import (
	"go.bug.st/serial"
)

// OpenSerial opens a UART device at the requested baud rate, 8N1.
func OpenSerial(id string, mode Mode) (Port, error) {
	baud := mode.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(id, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List enumerates the serial devices present on the host.
func List() ([]string, error) {
	return serial.GetPortsList()
}
