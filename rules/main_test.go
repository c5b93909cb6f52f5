package rules_test

// testFilterListID is an arbitrary non-zero filter-list ID; no test in this
// package currently uses it.
const testFilterListID = 1
