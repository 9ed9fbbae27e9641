// Package payitems loads the construction pay-item catalog and checks the pay
// items produced by the engine against it.
//
// A catalog file has two sections:
//
//	catalog:
//	  - pay_item_number: "205-12616"
//	    description: Silt Fence
//	    unit: LFT
//	    source_doc_id: INDOT-SS-2024
//	practice_map:
//	  silt_fence:
//	    - pay_item_number: "205-12616"
//
// Items that are not in the catalog, or whose unit disagrees with it, are
// flagged with "VERIFY PAY ITEM NUMBER".
package payitems
