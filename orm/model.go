package orm

import (
	"github.com/gogo/protobuf/proto"
)

// Model is implemented by any entity that can be stored using ModelBucket.
// Models are serialized using their protobuf representation.
type Model interface {
	proto.Message
	Validate() error
}

// Indexer calculates the secondary index value of a model. Returning nil
// means that the model is not indexed.
type Indexer func(Model) ([]byte, error)

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model type would not work for us.
// Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}
