// Package sse writes Server-Sent Events streams.
//
// A Writer frames JSON payloads as numbered events and flushes after each
// one, so a client sees every sample of a pass as soon as it is decoded.
//
// # Usage
//
//	w, err := sse.NewWriter(c.Writer)
//	if err != nil {
//		return err
//	}
//	for _, s := range samples {
//		if err := w.Send(sse.EventTypeSample, s); err != nil {
//			return err
//		}
//	}
//	_ = w.Send(sse.EventTypeEnd, sse.End{Count: w.Sent()})
package sse
