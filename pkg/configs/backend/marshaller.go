package backend

import (
	"os"

	"gopkg.in/yaml.v3"
)

// load kagami daemon config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *KagamiConfig, error:
//
//	When loading succeeds, returns `(*KagamiConfig, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadConfig(filepath string) (*KagamiConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *KagamiConfig, err error) {
	var marshalled *KagamiConfigMarshall
	if err := yaml.Unmarshal(conf, &marshalled); err != nil {
		return nil, err
	}
	return TrySeal(marshalled), nil
}
