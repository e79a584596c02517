// Package coco assembles labeled samples from the COCO dataset layout: one
// archive of images and one archive of JSON metadata documents, one document
// per annotation kind and split.
//
// Samples are produced by a streaming pipeline:
//
//	metadata archive ──demux by file name──▶ one document per selected kind
//	  document ──top-level members──▶ demux "images" / "annotations"
//	  annotations ──group by image_id──▶ join images by id ──▶ Association
//	all kinds ──concat──▶ group by image id ──▶ Collate ──▶ join image archive by file name ──▶ Sample
//
// Every relationship is a foreign key; no stage assumes any ordering between
// or within the archives. Annotations whose image is unknown, and images
// without annotations in any selected kind, produce no sample.
//
// Memory: the pipeline is single pass and holds, at its peak, every
// annotation of the selected kinds plus one image record per annotated image
// and one archive entry handle per image file. Options.MaxBuffered turns
// growth beyond a bound into a BUFFER_EXHAUSTED error.
package coco
