// Package index builds an in-memory TF-IDF index over a directory of reference
// documents and answers citation queries against it.
//
// The directory holds a manifest.yaml listing the documents:
//
//	- doc_id: INDOT-SS-2024
//	  filename: standard_specifications.txt
//	  title: Standard Specifications
//
// Each document's text is split into 400-word pages. Pages are weighted with
// smoothed inverse document frequency and L2-normalised term counts, and
// queries are ranked by cosine similarity.
package index
