// Package testutil boots a sunshine node once per test binary and hands out
// a ready client. By default the in-process sandbox is used; set
// SUNSHINE_NODE_IMAGE to run the same tests against a containerized node.
package testutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog/log"

	"github.com/sunshine-protocol/sunshine-go/internal/sandbox"
	"github.com/sunshine-protocol/sunshine-go/pkg/client"
	"github.com/sunshine-protocol/sunshine-go/pkg/keystore"
)

// DevBalance is the genesis balance of every dev account.
const DevBalance = 1_000_000

var (
	once     sync.Once
	setupErr error
	cl       *client.SunshineBindingClient
	nodeURL  string

	node       *sandbox.Node
	dockerPool *dockertest.Pool
	resNode    *dockertest.Resource

	devKeys map[string]*keystore.DeviceKey
)

func Setup(ctx context.Context) error {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		devKeys = make(map[string]*keystore.DeviceKey)
		genesis := make(map[string]uint64)
		for _, name := range []string{"Alice", "Bob", "Charlie"} {
			key, err := keystore.DeviceKeyFromSURI("//" + name)
			if err != nil {
				log.Fatal().Err(err).Msgf("failed to derive dev key %s", name)
			}
			devKeys[name] = key
			genesis[key.AccountID()] = DevBalance
		}

		if image := os.Getenv("SUNSHINE_NODE_IMAGE"); image != "" {
			nodeURL = initDockerNode(ctx, image)
		} else {
			var err error
			node, err = sandbox.Start(sandbox.NewLedger(genesis))
			if err != nil {
				log.Fatal().Err(err).Msg("failed to start sandbox node")
			}
			nodeURL = node.URL()
		}

		var err error
		cl, err = client.NewSunshineClient(nodeURL).
			WithConfigDir(mustTempDir()).
			WithInMemoryStore().
			Build(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build sunshine client")
		}

		if err := cl.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("node did not answer ping")
		}
		log.Info().Msgf("test node ready at %s", nodeURL)
	})
	return setupErr
}

func Teardown() {
	if cl != nil {
		cl.Close()
	}
	if node != nil {
		node.Close()
	}
	if dockerPool != nil && resNode != nil {
		if err := dockerPool.Purge(resNode); err != nil {
			log.Error().Err(err).Msg("could not purge node container")
		}
	}
}

// GetClient returns the shared binding client. Call Setup first.
func GetClient() *client.SunshineBindingClient {
	return cl
}

// GetNodeURL returns the websocket endpoint of the test node.
func GetNodeURL() string {
	return nodeURL
}

// DevKey returns one of the funded dev accounts (Alice, Bob, Charlie).
func DevKey(name string) *keystore.DeviceKey {
	return devKeys[name]
}

func initDockerNode(ctx context.Context, image string) string {
	var err error
	dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to docker")
	}
	if err := dockerPool.Client.Ping(); err != nil {
		log.Fatal().Err(err).Msg("could not ping docker")
	}

	wsPort := "9944"
	resNode, err = dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository:   image,
		Cmd:          []string{"--dev", "--ws-external"},
		ExposedPorts: []string{wsPort + "/tcp"},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not start node container")
	}

	resNode.Expire(300)

	mappedPort := resNode.GetPort(wsPort + "/tcp")
	if err := waitForPort(ctx, mappedPort, 2*time.Minute); err != nil {
		log.Fatal().Err(err).Msgf("node websocket port %s not ready", mappedPort)
	}

	return fmt.Sprintf("ws://127.0.0.1:%s", mappedPort)
}

func waitForPort(ctx context.Context, port string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	address := fmt.Sprintf("127.0.0.1:%s", port)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := net.DialTimeout("tcp", address, 1*time.Second)
		if err == nil {
			conn.Close()
			log.Info().Msgf("port %s is ready", port)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("timeout waiting for port %s", port)
}

func mustTempDir() string {
	dir, err := os.MkdirTemp("", "sunshine-test-*")
	if err != nil {
		log.Fatal().Err(err).Msg("could not create temp config dir")
	}
	return dir
}
