// Package manager keeps the active policy evaluator current with its
// configuration file.
//
// A Manager builds an engine.Evaluator through a BuildFunc, serves
// evaluations from it, and swaps in a freshly built evaluator whenever the
// configuration file changes. The swap is atomic: evaluations already in
// flight finish on the evaluator they started with. A reload that fails to
// build keeps the previous evaluator.
//
// # Basic Usage
//
//	mgr, err := manager.New("jobhook.yaml", build, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	go mgr.Watch(ctx)
//
//	decision, err := mgr.Evaluate(ctx, snapshot, gw)
//
// File changes are debounced so editors that write in several steps trigger a
// single reload. The watcher observes the file's directory, so atomic
// rename-over saves are picked up as well.
package manager
