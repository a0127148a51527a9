// Package testsupport builds temp-directory configs and fixture files for
// tests across packages.
package testsupport
