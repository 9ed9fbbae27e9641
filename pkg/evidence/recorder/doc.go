// Package recorder turns a finished engine run into an evidence.RunRecord
// and writes it to storage.
//
// Records are written synchronously by default. With Config.Async the
// recorder queues records on a buffered channel drained by a background
// worker, and Close drains what is left before returning.
//
//	rec := recorder.New(store, recorder.DefaultConfig(), logger)
//	defer rec.Close()
//
//	record, err := rec.Record(ctx, recorder.Run{
//	    Facts:   facts,
//	    Rules:   rules,
//	    Output:  out,
//	    Started: start,
//	})
package recorder
