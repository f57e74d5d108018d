package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikage-io/kagami/cmd/kagamid/server"
	"github.com/mikage-io/kagami/cmd/kagamid/tasks/resync"
	"github.com/mikage-io/kagami/cmd/kagamid/tasks/sweep"
	configs "github.com/mikage-io/kagami/pkg/configs/backend"
	kpool "github.com/mikage-io/kagami/pkg/conn/db/postgres/pool"
	"github.com/mikage-io/kagami/pkg/console"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	"github.com/mikage-io/kagami/pkg/domain/cluster/k8s"
	mirrorpg "github.com/mikage-io/kagami/pkg/domain/mirror/db/postgres"
	"github.com/mikage-io/kagami/pkg/taskman"
	"github.com/mikage-io/kagami/pkg/utils/filewatch"
	"github.com/mikage-io/kagami/pkg/utils/slices"
	"github.com/mikage-io/kagami/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String(
		"config", os.Getenv("KAGAMI_CONFIG"), "path to config file",
	)
	flag.Parse()

	{
		// quit on config change; the process supervisor restarts us with
		// the new configuration
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadConfig(*pconfig)).OrFatal(logger)

	pool := try.To(kpool.New(ctx, conf.Cluster().Database())).OrFatal(logger)
	defer pool.Close()
	if err := mirrorpg.Ensure(ctx, pool); err != nil {
		logger.Fatal(err)
	}

	mirrorOptions := []mirrorpg.Option{}
	if conf.Cluster().UserScoping() {
		mirrorOptions = append(mirrorOptions, mirrorpg.WithUserScoping())
	}
	m := mirrorpg.New(pool, mirrorOptions...)

	conns := try.To(k8s.LoadConnections(
		prefixed(logger, "[cluster] "),
		conf.Cluster().Namespace(), conf.Cluster().KubeconfigDir(),
	)).OrFatal(logger)
	if len(conns) == 0 {
		logger.Fatal("no clusters are reachable")
	}

	liveClients := slices.Map(conns, k8s.NewClient)
	livePool := cluster.NewPool(liveClients...)

	// the cached pool serves the ops endpoint; resync needs the live one
	cachedPool := cluster.NewPool(slices.Map(
		liveClients,
		func(c cluster.Client) cluster.Client { return k8s.NewCachedClient(c, m) },
	)...)

	manager := taskman.New(
		prefixed(logger, "[task] "),
		taskman.WithMaxRetryWait(conf.Tasks().MaxRetryWait()),
	)
	manager.StartAll(ctx, taskman.Definitions{
		"resync": resync.Task(
			prefixed(logger, "[resync] "), livePool, m, conf.Tasks().Resync(),
		),
		"sweep": sweep.Task(
			prefixed(logger, "[sweep] "), m, conf.Tasks().Sweep(),
		),
	})

	{
		lis := try.To(net.Listen(
			"tcp", fmt.Sprintf(":%d", conf.Console().Port()),
		)).OrFatal(logger)
		cons := console.New(prefixed(logger, "[console] "), manager)
		go func() {
			if err := cons.Serve(ctx, lis); err != nil && ctx.Err() == nil {
				logger.Printf("console stopped: %s", err)
			}
		}()
		logger.Printf("console is listening on %s", lis.Addr())
	}

	e := server.Build(manager, cachedPool)
	context.AfterFunc(ctx, func() {
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			logger.Printf("error on shutdown: %s", err)
		}
	})

	err := e.Start(fmt.Sprintf(":%d", conf.Port()))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("server stopped: %s", err)
	}

	// let tasks observe cancellation before the pool closes
	cancel()
	for _, t := range manager.CurrentTasks() {
		if h := manager.Cancel(t.Name); h != nil {
			if err := h.Join(5 * time.Second); err != nil {
				logger.Printf("task %s: %s", t.Name, err)
			}
		}
	}
}

func prefixed(base *log.Logger, prefix string) *log.Logger {
	return log.New(base.Writer(), prefix, base.Flags())
}
