package escrow

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

// configPkg is the name under which the escrow configuration is stored.
const configPkg = "escrow"

// Configuration names the parties trusted by the escrow extension. It is
// set at genesis and cannot be changed afterwards.
type Configuration struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Owner is the address that deployed the escrow extension.
	Owner weave.Address `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner"`
	// Relayer is the only address allowed to settle or cancel an escrow.
	Relayer weave.Address `protobuf:"bytes,3,opt,name=relayer,proto3" json:"relayer"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

var _ gconf.Configuration = (*Configuration)(nil)

// Validate ensures both parties are set.
func (c *Configuration) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := c.Relayer.Validate(); err != nil {
		return errors.Wrap(err, "relayer")
	}
	return nil
}

// LoadConfiguration returns the escrow configuration stored in the database.
func LoadConfiguration(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, configPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "escrow configuration")
	}
	return &conf, nil
}
