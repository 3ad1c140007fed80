package main

import (
	"context"
	"dcabacktest/api"
	"dcabacktest/cmd"
	"dcabacktest/internal/domain"
	"dcabacktest/internal/logger"
	"dcabacktest/internal/repository"
	"dcabacktest/internal/service"
	"dcabacktest/internal/util"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dca",
		Short:        "dollar-cost averaging backtests",
		SilenceUsage: true,
	}
	root.AddCommand(newSimulateCmd(), newIngestCmd())
	return root
}

func newSimulateCmd() *cobra.Command {
	var (
		pricesPath string
		today      string
		req        api.DcaRequest
	)

	c := &cobra.Command{
		Use:   "simulate",
		Short: "run a dca simulation against a local price csv",
		RunE: func(c *cobra.Command, args []string) error {
			config, err := req.ToConfig()
			if err != nil {
				return err
			}

			in := service.RunDcaInput{Config: *config}
			if today != "" {
				in.Today, err = util.ParseDate(today)
				if err != nil {
					return fmt.Errorf("could not parse today: %w", err)
				}
			}

			priceRepository, err := repository.NewCsvPriceRepository(pricesPath)
			if err != nil {
				return err
			}
			dcaService := service.NewDcaService(service.NewPriceService(priceRepository, nil))

			profile, endProfile := domain.NewProfile()
			ctx := domain.NewCtxWithProfile(context.Background(), profile)
			ctx = logger.NewContext(ctx, logger.New())

			result, err := dcaService.Run(ctx, in)
			if err != nil {
				return err
			}
			endProfile()

			util.Pprint(api.NewDcaResponse(*result))
			logger.FromContext(ctx).Debugw("simulation finished", "totalMs", profile.TotalMs)
			return nil
		},
	}

	c.Flags().StringVar(&pricesPath, "prices", "prices.csv", "csv of date,symbol,price rows")
	c.Flags().Float64Var(&req.Amount, "amount", 100, "amount invested per contribution")
	c.Flags().StringVar(&req.Frequency, "frequency", "monthly", "daily, weekly, biweekly or monthly")
	c.Flags().StringVar(&req.Start, "start", "", "first contribution date (YYYY-MM-DD)")
	c.Flags().StringVar(&req.End, "end", "", "last possible contribution date (YYYY-MM-DD)")
	c.Flags().StringSliceVar(&req.Symbols, "symbols", nil, "comma separated symbols")
	c.Flags().StringVar(&today, "today", "", "override the current date (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	_ = c.MarkFlagRequired("symbols")

	return c
}

func newIngestCmd() *cobra.Command {
	var (
		pricesPath string
		start      string
		symbols    []string
	)

	c := &cobra.Command{
		Use:   "ingest",
		Short: "fetch adjusted daily closes from yahoo and store them",
		RunE: func(c *cobra.Command, args []string) error {
			var startDate *time.Time
			if start != "" {
				s, err := util.ParseDate(start)
				if err != nil {
					return fmt.Errorf("could not parse start: %w", err)
				}
				startDate = &s
			}

			ctx := logger.NewContext(context.Background(), logger.New())

			// a csv path writes locally; otherwise prices go to postgres
			if pricesPath != "" {
				priceRepository, err := repository.NewCsvPriceRepository(pricesPath)
				if err != nil {
					return err
				}
				return service.NewPriceService(priceRepository, nil).IngestPrices(ctx, symbols, startDate)
			}

			handler, _, err := cmd.InitializeDependencies()
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(handler)

			return handler.PriceService.IngestPrices(ctx, symbols, startDate)
		},
	}

	c.Flags().StringVar(&pricesPath, "prices", "", "write to this csv instead of the database")
	c.Flags().StringVar(&start, "start", "", "first date to fetch (YYYY-MM-DD), defaults to 2000-01-01")
	c.Flags().StringSliceVar(&symbols, "symbols", nil, "comma separated symbols")
	_ = c.MarkFlagRequired("symbols")

	return c
}
