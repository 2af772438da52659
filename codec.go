package raonfs

import (
	"bytes"
	"encoding/binary"
	"os"
)

// Codec packs and unpacks fixed-width records using a single configured
// byte order, threaded through every field of a record. RaonFS has exactly
// three record shapes, Superblock, inode, Dentry, each with its own
// Pack/Unpack pair built on top of this.
type Codec struct {
	Order binary.ByteOrder
}

// NewCodec returns a Codec using the given byte order.
func NewCodec(order binary.ByteOrder) Codec {
	return Codec{Order: order}
}

// EndianFromEnv resolves ENDIAN_TYPE: "big" selects binary.BigEndian,
// anything else (including unset) selects the default, binary.LittleEndian.
func EndianFromEnv() binary.ByteOrder {
	if os.Getenv("ENDIAN_TYPE") == "big" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Pack writes each field in fields, in order, using the codec's byte order.
// Every field must be a fixed-width value binary.Write accepts directly:
// uintN, or a fixed-size byte array (the sN token of the on-disk layout
// grammar, e.g. [4]byte for a 4-byte magic).
func (c Codec) Pack(fields ...any) ([]byte, error) {
	var buf bytes.Buffer
	for _, f := range fields {
		if err := binary.Write(&buf, c.Order, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Unpack reads len(fields) values from data into the pointers in fields, in
// order, using the codec's byte order.
func (c Codec) Unpack(data []byte, fields ...any) error {
	r := bytes.NewReader(data)
	for _, f := range fields {
		if err := binary.Read(r, c.Order, f); err != nil {
			return err
		}
	}
	return nil
}
