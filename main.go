package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"

	"github.com/PDOK/gokoala-ogc/driver"
	"github.com/PDOK/gokoala-ogc/engine"
	"github.com/PDOK/gokoala-ogc/objectstore"
	"github.com/PDOK/gokoala-ogc/ogc/collections"
	"github.com/PDOK/gokoala-ogc/ogc/common"
	"github.com/PDOK/gokoala-ogc/ogc/edr"
	"github.com/PDOK/gokoala-ogc/ogc/features"
	"github.com/PDOK/gokoala-ogc/ogc/processes"
	"github.com/PDOK/gokoala-ogc/ogc/stac"
	"github.com/PDOK/gokoala-ogc/ogc/styles"
	"github.com/PDOK/gokoala-ogc/ogc/tiles"
	"github.com/PDOK/gokoala-ogc/postgres"
	"github.com/PDOK/gokoala-ogc/process"
	"github.com/PDOK/gokoala-ogc/tileset"
)

func main() {
	app := cli.NewApp()
	app.Name = "GoKoala"
	app.Usage = "Cloud Native OGC APIs server, written in Go"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name: "host", Usage: "bind host for OGC server", Value: "0.0.0.0", EnvVars: []string{"HOST"},
		},
		&cli.IntFlag{
			Name: "port", Usage: "bind port for OGC server", Value: 8080, EnvVars: []string{"PORT"},
		},
		&cli.IntFlag{
			Name:  "debug-port",
			Usage: "bind port for debug server (disabled by default), do not expose this port publicly",
			Value: -1, EnvVars: []string{"DEBUG_PORT"},
		},
		&cli.IntFlag{
			Name:  "shutdown-delay",
			Usage: "delay (in seconds) before initiating graceful shutdown (e.g. useful in k8s to allow ingress controller to update their endpoints list)",
			Value: 0, EnvVars: []string{"SHUTDOWN_DELAY"},
		},
		&cli.StringFlag{
			Name: "config-file", Usage: "reference to YAML configuration file", Required: true, EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name: "openapi-file", Usage: "reference to the bundled OpenAPI document", EnvVars: []string{"OPENAPI_FILE"},
		},
		&cli.IntFlag{
			Name:  "max-zoom",
			Usage: "highest zoom level advertised by the bundled WebMercatorQuad tile matrix set",
			Value: 22, EnvVars: []string{"MAX_ZOOM"},
		},
	}

	app.Action = func(c *cli.Context) error {
		log.Printf("%s - %s\n", app.Name, app.Usage)

		address := net.JoinHostPort(c.String("host"), strconv.Itoa(c.Int("port")))
		debugPort := c.Int("debug-port")
		shutdownDelay := c.Int("shutdown-delay")

		e := engine.NewEngine(c.String("config-file"))

		ctx := context.Background()
		db, err := postgres.Open(ctx, postgres.Config{URL: e.Config.DatabaseURL})
		if err != nil {
			return err
		}

		var featuresBackend driver.Backend = db
		if e.Config.ObjectStore != nil {
			store, err := objectstore.New(ctx, objectstore.Config{
				Bucket:          e.Config.ObjectStore.Bucket,
				Region:          e.Config.ObjectStore.Region,
				Endpoint:        e.Config.ObjectStore.Endpoint,
				AccessKeyID:     e.Config.ObjectStore.AccessKeyID,
				SecretAccessKey: e.Config.ObjectStore.SecretAccessKey,
			})
			if err != nil {
				return err
			}
			featuresBackend = store
		}

		registry, err := process.NewRegistry(process.EchoProcessor{})
		if err != nil {
			return err
		}
		runner := process.NewRunner(db, nil)

		router := newRouter(e, c.String("openapi-file"), c.Int("max-zoom"), featuresBackend, db, registry, runner)

		return e.Start(address, router, debugPort, shutdownDelay)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newRouter wires every OGC API family onto router. Features/Collections run
// against whichever backend was selected (PostgreSQL or the object store);
// EDR, STAC, Tiles and Styles are SQL-only (spec.md §4.5, "the object store
// backend implements CollectionTx/FeatureTx only") so they're always wired
// against db directly.
func newRouter(e *engine.Engine, openAPIFile string, maxZoom int, featuresBackend driver.Backend, db *postgres.DB, registry *process.Registry, runner *process.Runner) *chi.Mux {
	router := engine.NewRouter()

	common.NewCommon(e, router, openAPIFile)
	collections.NewCollections(e, router, featuresBackend)
	features.NewFeatures(e, router, featuresBackend, featuresBackend)
	edr.NewEDR(e, router, featuresBackend, db)
	stac.NewStac(e, router, db)
	tiles.NewTiles(e, router, featuresBackend, db, tileset.Registry(maxZoom))
	styles.NewStyles(e, router, db)
	processes.NewProcesses(e, router, registry, runner, db)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		engine.SafeWrite(w.Write, []byte("OK"))
	})

	return router
}
