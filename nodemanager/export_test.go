package nodemanager

// NewPoolForTest exposes the unexported newPool constructor to external
// tests in this package.
var NewPoolForTest = newPool
