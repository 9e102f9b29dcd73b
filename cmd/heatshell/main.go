package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/arenvio/heatshell/cmd/app"
	"github.com/arenvio/heatshell/internal/audit"
	httpctrl "github.com/arenvio/heatshell/internal/controllers/http"
	modbusctrl "github.com/arenvio/heatshell/internal/controllers/modbus"
	mqttctrl "github.com/arenvio/heatshell/internal/controllers/mqtt"
	"github.com/arenvio/heatshell/internal/site"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.Parse()

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	app.ApplyEnvOverrides(&cfg)

	lib, err := app.LoadMaterials(cfg.MaterialsFile)
	if err != nil {
		log.Fatal(err)
	}
	building, err := cfg.Envelope(lib)
	if err != nil {
		log.Fatal(err)
	}

	svc, err := audit.New(building, cfg.InitialTemperatures())
	if err != nil {
		log.Fatal(err)
	}
	st := site.New(cfg.SiteID, svc)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Controllers.HTTP.Enabled {
		srv := httpctrl.New(st.Audit, cfg.Controllers.HTTP.Addr, st.ID)
		log.Printf("heatshell http listening on %s", cfg.Controllers.HTTP.Addr)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if cfg.Controllers.MQTT.Enabled {
		mc := cfg.Controllers.MQTT
		ctrl, err := mqttctrl.New(st.Audit, mqttctrl.Config{
			SiteID:          st.ID,
			BrokerURL:       mc.BrokerURL,
			ClientID:        mc.ClientID,
			BaseTopic:       mc.BaseTopic,
			QoS:             mc.QoS,
			RetainSnapshot:  mc.RetainSnapshot,
			PublishInterval: mc.PublishInterval,
			Username:        mc.Username,
			Password:        mc.Password,
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("heatshell mqtt connecting to %s", mc.BrokerURL)
		g.Go(func() error { return ctrl.Run(ctx) })
	}

	if cfg.Controllers.MODBUS.Enabled {
		mc := cfg.Controllers.MODBUS
		ctrl, err := modbusctrl.New(st.Audit, modbusctrl.Config{
			SiteID: st.ID,
			Addr:   mc.Addr,
			UnitID: mc.UnitID,
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("heatshell modbus listening on %s", mc.Addr)
		g.Go(func() error { return ctrl.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("exited: %v", err)
	}
}
