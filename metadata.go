package weave

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow/errors"
)

// Metadata is attached to every persisted model and message. The schema
// version allows to migrate the serialization format in the future.
type Metadata struct {
	Schema uint32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema"`
}

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

// Validate returns an error if the metadata does not declare a schema
// version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema == 0 {
		return errors.Wrap(errors.ErrMetadata, "schema is required")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when implementing
// orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	cpy := *m
	return &cpy
}
