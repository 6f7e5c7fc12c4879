package api

import (
	"context"
	"fmt"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
	"github.com/tidepool-org/medical-data/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewServer(handler *Handler, zapLogger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(zapLogger))

	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", func(c echo.Context) error {
		return c.NoContent(200)
	})
	RegisterHandlers(e, handler)

	return e, nil
}

func Start(e *echo.Echo, cfg *config.Config, lifecycle fx.Lifecycle) {
	address := fmt.Sprintf(":%d", cfg.HttpPort)
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(address); err != nil {
					fmt.Println(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func NewConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MainLoop() {
	fx.New(
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			NewConfig,
			NewSessionManager,
			NewHandler,
			NewServer,
		),
		fx.Invoke(Start),
	).Run()
}
