// Package resilience guards the I/O around dataset passes.
//
//   - Retry: repeats an operation with exponential backoff while its error is
//     retryable, e.g. reading an archive from flaky network storage
//   - Bulkhead: bounds how many passes run at once, since every pass holds its
//     own buffers
//
//	vocab, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*coco.Vocabulary, error) {
//	    return coco.BuildVocabulary(ctx, meta, opts)
//	})
package resilience
