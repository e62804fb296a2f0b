// Command navcheck replays screen paths through the navigation guard using the
// session and profile served by a running API, printing every redirect.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/client"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/navigation"
	"github.com/spec-kit/classroom-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	baseURL := flag.String("base", cfg.App.PublicBaseURL, "API base URL")
	token := flag.String("token", os.Getenv("NAVCHECK_TOKEN"), "bearer token; empty checks as signed out")
	timeout := flag.Duration("timeout", 5*time.Second, "per request timeout")
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(paths)+1)*(*timeout))
	defer cancel()

	api := client.New(*baseURL, *token, *timeout)
	session, err := api.Session(ctx)
	if err != nil {
		logger.Fatal("fetch session", zap.Error(err))
	}

	sessions := navigation.NewSessionContext()
	sessions.Set(session)
	router := navigation.NewRouter(
		navigation.NewGuard(api, navigation.WithTrustRoleZones(cfg.Navigation.TrustRoleZones)),
		sessions,
		navigation.NavigatorFunc(func(path string) { fmt.Printf("  -> replace %s\n", path) }),
		logger,
	)
	defer router.Close()

	for _, path := range paths {
		fmt.Println(path)
		decision, err := router.Navigate(ctx, path)
		if errors.Is(err, navigation.ErrUnhandledRole) {
			fmt.Println("  !! no home screen for this role")
			continue
		}
		if err != nil {
			logger.Fatal("navigate", zap.String("path", path), zap.Error(err))
		}
		if decision.Action != navigation.ActionReplace {
			fmt.Printf("  %s\n", decision.Action)
		}
	}
}
