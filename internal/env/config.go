package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Trace logs the type and size of every frame the server handles.
	Trace bool `env:"XWIRE_TRACE"`

	// MaxFrameSize bounds message payloads in both directions, in bytes.
	// Zero means the protocol maximum.
	MaxFrameSize uint32 `env:"XWIRE_MAX_FRAME_SIZE"`

	DebugHTTP bool `env:"XWIRE_DEBUG_HTTP"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
