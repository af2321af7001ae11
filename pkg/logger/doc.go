// Package logger builds the process *slog.Logger and provides attribute
// helpers so that log keys stay consistent across packages.
//
// Production and staging emit JSON at INFO; everything else emits text at
// DEBUG. Context extractors run on every record, which is how request ids
// attached by middleware end up on log lines written deep inside services.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, cfg.Name),
//		logger.WithContextExtractors(requestid.Extractor),
//	)
//	log.InfoContext(ctx, "session issued", logger.UserID(id))
package logger
