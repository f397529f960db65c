package record

// SignatureSize is the fixed byte length of the archive signature.
const SignatureSize = 8

// DefaultSignature is the 8-byte magic every DataPak archive begins
// with, unless the writer was configured with a custom one.
var DefaultSignature = [SignatureSize]byte{'D', 'a', 't', 'a', 'P', 'a', 'k', '.'}
