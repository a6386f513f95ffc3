// Package rounds groups each subject's studies into visits.
//
// Study dates are taken from the first ten characters of AcquisitionDateTime.
// Within one subject, a new round starts whenever a date is more than the
// configured number of days after the date that opened the current round.
// Rounds are tagged V1, V2, ... and numbering restarts for every subject.
package rounds
