// Package marker assigns sequence-type labels to MRI series records.
//
// Labeling runs as an ordered list of passes, each of which may overwrite the
// label left by the one before it:
//
//  1. sequence: the main rule table, then the "Others" override, then the
//     "delete" override. Within the pass "delete" outranks "Others", which
//     outranks any table label.
//  2. fallback: vendor-specific tables for records that are still unlabeled.
//  3. t1_3d: splits volumetric T1 series into 3DT1 or delete depending on
//     slice spacing and the configured policy.
//  4. swi: separates phase images from plain SWI.
//
// Every pass is a pure function of one record and the compiled rules, so the
// final label depends only on the record's fields and the configuration.
package marker
