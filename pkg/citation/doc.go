// Package citation binds reference-document citations to engine output.
//
// Each practice in a ProjectOutput gets exactly one CitationRef. A citation
// declared by the rule author wins; otherwise the Binder asks a Retriever
// (usually an index.Index over the agency's reference documents) for the best
// match to the rule's name and justification. A candidate is accepted only
// when its document id carries the required agency prefix, unless the policy
// allows any source. When nothing acceptable is found the practice gets a
// placeholder label; citations are never invented.
package citation
