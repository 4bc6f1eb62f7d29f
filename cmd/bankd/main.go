package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/audit"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/command"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/handler"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/proxy"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/session"
	"github.com/Stevekk11/tcp-bank/internal/cache"
	"github.com/Stevekk11/tcp-bank/internal/db"
	"github.com/Stevekk11/tcp-bank/internal/env"
	"github.com/Stevekk11/tcp-bank/internal/mq"
	"github.com/Stevekk11/tcp-bank/internal/netmon"
)

func main() {
	log.SetFormatter(&log.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})

	envCfg, err := env.GetEnvCfg()
	if err != nil {
		log.Fatalf("error parsing env vars: %v", err)
	}

	dbCfg := db.Config{
		User: envCfg.DBUser,
		Pass: envCfg.DBPass,
		Name: envCfg.DBName,
		Host: envCfg.DBHost,
		Port: envCfg.DBPort,
	}
	dbc, err := db.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("error connecting to db: %v", err)
	}

	defer func() {
		if err := dbc.Close(); err != nil {
			log.Errorf("error closing db: %v", err)
		}
	}()

	if err := db.Migrate(dbc); err != nil {
		log.Fatalf("error preparing accounts table: %v", err)
	}

	monitor := netmon.New(envCfg.NetCheckInterval)
	monitor.Start()
	defer monitor.Stop()

	bankCode := envCfg.ListenAddr
	if bankCode == "" || bankCode == "0.0.0.0" {
		bankCode, err = netmon.LocalIP()
		if err != nil {
			log.Fatalf("unable to determine bank code: %v", err)
		}
	}
	log.Infof("bank code is %s", bankCode)

	var balances *cache.Redis
	if envCfg.CacheHost != "" {
		balances, err = cache.NewConnection(cache.Config{
			Host:         envCfg.CacheHost,
			Pass:         envCfg.CachePass,
			Port:         envCfg.CachePort,
			Node:         bankCode,
			LocalEntries: envCfg.CacheLocalEntries,
			TTL:          envCfg.CacheTTL,
		})
		if err != nil {
			log.Errorf("error connecting to redis, running without balance cache: %v", err)
		}
	}

	store := account.NewStore(dbc, balances)

	var events command.EventSink
	if envCfg.MQHost != "" {
		mqCfg := mq.Config{
			User: envCfg.MQUser,
			Pass: envCfg.MQPass,
			Host: envCfg.MQHost,
			Port: envCfg.MQPort,
		}
		conn, err := mq.NewConnection(mqCfg)
		if err != nil {
			log.Errorf("error connecting to mq, events disabled: %v", err)
		} else {
			defer func() {
				if err := conn.Channel.Close(); err != nil {
					log.Errorf("error closing mq channel: %v", err)
				}
			}()

			publisher, err := audit.NewPublisher(conn)
			if err != nil {
				log.Errorf("error declaring bank-events exchange, events disabled: %v", err)
			} else {
				events = publisher
			}
		}
	}

	dispatcher := command.NewDispatcher(command.Config{
		BankCode:  bankCode,
		Timeout:   envCfg.ResponseTimeout,
		Store:     store,
		Forwarder: proxy.NewForwarder(envCfg.ListenPort),
		Events:    events,
		Online:    monitor.Available,
	})

	server := session.NewServer(fmt.Sprintf("%s:%d", envCfg.ListenAddr, envCfg.ListenPort), envCfg.IdleTimeout, dispatcher)

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Errorf("bank server failed: %v", err)
		}
	}()

	ops := http.Server{
		Addr:           fmt.Sprintf(":%d", envCfg.OpsPort),
		Handler:        handler.NewApplication(dbc, store, monitor),
		ReadTimeout:    envCfg.ReadTimeout,
		WriteTimeout:   envCfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infof("ops server listening on %s", ops.Addr)
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("ops server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	if err := server.Close(); err != nil {
		log.Errorf("error closing bank server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), envCfg.ShutdownTimeout)
	defer cancel()

	if err := ops.Shutdown(ctx); err != nil {
		log.Warnf("shutdown: graceful shutdown did not complete in %v : %v", envCfg.ShutdownTimeout, err)

		if err := ops.Close(); err != nil {
			log.Warnf("shutdown: error killing ops server : %v", err)
		}
	}
}
