package engine

import (
	"github.com/shamaton/msgpack/v2"
)

const (
	envelopeMagic  = "wasmbench-artifact"
	envelopeFormat = 1
)

// envelope is the serialized form of an Artifact. Fields are encoded in
// declaration order and hold no maps, so equal artifacts encode to equal bytes.
type envelope struct {
	Magic         string   `msgpack:"magic"`
	Format        uint8    `msgpack:"format"`
	Backend       string   `msgpack:"backend"`
	Engine        string   `msgpack:"engine"`
	EngineVersion string   `msgpack:"engine_version"`
	Platform      string   `msgpack:"platform"`
	Exports       []string `msgpack:"exports"`
	Imports       []string `msgpack:"imports"`
	Payload       []byte   `msgpack:"payload"`
}

func encodeEnvelope(env *envelope) ([]byte, error) {
	return msgpack.Marshal(env)
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
