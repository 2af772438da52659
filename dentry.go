package raonfs

// DentrySize is the on-disk byte width of a directory-entry record:
// name_offset(4) + name_len(2) + type(2) + ioffset(4) = 12 bytes.
const DentrySize = 12

// DentryRecord points to a child inode by byte offset; the child's name is
// held separately, in the parent directory's name region. NameOffset is
// relative to that name region, not a global string-table reference.
type DentryRecord struct {
	NameOffset uint32
	NameLen    uint16
	Type       uint16
	IOffset    uint32
}

// PackDentry encodes d as a 12-byte dentry record using c's byte order.
func (c Codec) PackDentry(d DentryRecord) ([]byte, error) {
	return c.Pack(d.NameOffset, d.NameLen, d.Type, d.IOffset)
}

// UnpackDentry decodes a DentryRecord from a 12-byte buffer using c's byte
// order.
func (c Codec) UnpackDentry(data []byte) (DentryRecord, error) {
	var d DentryRecord
	err := c.Unpack(data, &d.NameOffset, &d.NameLen, &d.Type, &d.IOffset)
	return d, err
}
