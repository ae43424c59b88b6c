// Command corpusfetch downloads the published dataset archives and
// extracts their PDFs into the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"marginalia/backend/internal/config"
	"marginalia/backend/internal/corpus"
	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/network"
	"marginalia/backend/pkg/safeoutbound"
)

func main() {
	all := flag.Bool("all", false, "fetch every dataset, including the multi-gigabyte ones")
	skipVerify := flag.Bool("skip-verify", false, "skip checksum verification")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [dataset numbers...]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Without arguments the small datasets (under 1 GB) are fetched.")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	datasets, err := selectDatasets(flag.Args(), *all)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	downloader := corpus.NewDownloader(
		network.NewClientFactory().NewDownloadClient(),
		safeoutbound.New(net.DefaultResolver),
		filepath.Join(cfg.DataDir, "downloads"),
		cfg.DataDir,
		*skipVerify,
	)

	total := 0
	failed := 0
	for _, num := range datasets {
		count, err := downloader.Fetch(ctx, num)
		if err != nil {
			logger.Error("dataset fetch failed", "dataset", num, "error", err)
			failed++
			continue
		}
		total += count
	}

	logger.Info("fetch complete", "datasets", len(datasets), "failed", failed, "pdfs_extracted", total)
	if failed > 0 {
		os.Exit(1)
	}
}

func selectDatasets(args []string, all bool) ([]int, error) {
	if len(args) == 0 {
		if all {
			return corpus.AllDatasets, nil
		}
		return corpus.SmallDatasets, nil
	}

	nums := make([]int, 0, len(args))
	for _, arg := range args {
		num, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid dataset number %q", arg)
		}
		if _, ok := corpus.Datasets[num]; !ok {
			return nil, fmt.Errorf("dataset %d is not configured", num)
		}
		nums = append(nums, num)
	}
	return nums, nil
}
