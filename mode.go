package raonfs

import "fmt"

// Linux mode_t type bits (see stat(2) / S_IFMT). RaonFS stores the raw
// mode_t reported by stat, truncated to 16 bits (every type bit below
// always fits), so the Walker adapter derives NodeType straight from it
// instead of carrying a second parallel classification.
const (
	sIFMT   = 0xf000
	sIFSOCK = 0xc000
	sIFLNK  = 0xa000
	sIFREG  = 0x8000
	sIFBLK  = 0x6000
	sIFDIR  = 0x4000
	sIFCHR  = 0x2000
	sIFIFO  = 0x1000
)

// nodeTypeFromMode derives a NodeType from a raw stat mode_t. It returns an
// error for type bits outside the eight RaonFS understands; the Walker
// adapter turns that into a KindUnsupported error.
func nodeTypeFromMode(mode uint32) (NodeType, error) {
	switch mode & sIFMT {
	case sIFDIR:
		return TypeDir, nil
	case sIFREG:
		return TypeFile, nil
	case sIFLNK:
		return TypeLink, nil
	case sIFBLK:
		return TypeBlockDev, nil
	case sIFCHR:
		return TypeCharDev, nil
	case sIFIFO:
		return TypeFifo, nil
	case sIFSOCK:
		return TypeSocket, nil
	default:
		return TypeNone, fmt.Errorf("mode 0%o: unrecognized file type", mode)
	}
}
