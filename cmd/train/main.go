// Command train drives the n-gram engine's trainer over a corpus file
// and writes the resulting model to disk. Argument parsing, exit codes
// and corpus file discovery live here deliberately — the core library
// under internal/lm knows nothing about flags or stdio.
package main

import (
	"flag"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"suffixlm/internal/config"
	"suffixlm/internal/lm"
)

func main() {
	var corpusPath = flag.String("corpus", "", "Path to the training corpus file")
	var configPath = flag.String("config", "", "Path to an engine config YAML file (optional)")
	var outPrefix = flag.String("out", "model", "Output file prefix for the trained model")
	var verbose = flag.Bool("verbose", false, "Enable debug-level logging")
	flag.Parse()

	if *corpusPath == "" {
		log.Fatal("train: -corpus is required")
	}

	cfgZap := zap.NewProductionConfig()
	if *verbose {
		cfgZap.Level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatal("train: failed to initialize logger:", err)
	}
	defer logger.Sync()

	engineCfg := config.Default()
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal("failed to load engine config", zap.Error(err))
		}
		if cfg.Engine.MaxN > 0 {
			engineCfg.MaxN = cfg.Engine.MaxN
		}
		if cfg.Engine.Decay > 0 {
			engineCfg.Decay = cfg.Engine.Decay
		}
		if len(cfg.Engine.Terminators) > 0 {
			engineCfg.Terminators = cfg.Engine.Terminators
		}
		if cfg.Engine.ModelPrefix != "" {
			engineCfg.ModelPrefix = cfg.Engine.ModelPrefix
		}
	}

	model := lm.NewModel(engineCfg.MaxN, logger)
	model.Weighter = lm.DecayWeighter{Decay: engineCfg.Decay}
	if len(engineCfg.Terminators) > 0 {
		model.Terminators = engineCfg.Terminators
	}

	if err := model.TrainFile(*corpusPath); err != nil {
		logger.Fatal("training failed", zap.Error(err), zap.String("corpus", *corpusPath))
	}

	prefix := *outPrefix
	if engineCfg.ModelPrefix != "" && *outPrefix == "model" {
		prefix = engineCfg.ModelPrefix
	}
	if err := model.Save(prefix); err != nil {
		logger.Fatal("saving model failed", zap.Error(err), zap.String("prefix", prefix))
	}

	stats := model.Stats()
	logger.Info("training complete",
		zap.Int("vocab_size", stats.VocabSize),
		zap.Uint64("total_tokens", stats.TotalTokens),
		zap.Int("node_count", stats.NodeCount),
		zap.String("prefix", prefix),
	)
}
