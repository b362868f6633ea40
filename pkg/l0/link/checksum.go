package link

// ChecksumMask is XOR-ed into every checksum.
const ChecksumMask byte = 0xA9

// Checksum computes the integrity byte over a command and its data.
func Checksum(cmd byte, data ...byte) byte {
	sum := cmd ^ ChecksumMask
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// Checksum8 computes the checksum of an 8-bit command.
func Checksum8(cmd, data byte) byte {
	return cmd ^ data ^ ChecksumMask
}

// Checksum16 computes the checksum of a 16-bit command.
func Checksum16(cmd, hi, lo byte) byte {
	return cmd ^ hi ^ lo ^ ChecksumMask
}
