// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package audit

import (
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/pkg/errutil"
)

func TestNewMigrator_InvalidURLScheme(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/testdb")
	require.Error(t, err, "should fail with invalid URL scheme")
	assert.NotContains(t, err.Error(), "unknown driver postgresql")
}

func TestNewMigrator_PostgresSchemeRewrittenToPgx5(t *testing.T) {
	_, err := NewMigrator("postgres://localhost:5/testdb")
	require.Error(t, err, "should fail due to connection, not URL scheme")
	assert.NotContains(t, err.Error(), "unknown driver")
}

// mockMigrate implements migrateIface without a live database, matching
// the teacher's internal/store/migrate_test.go mockMigrate harness.
type mockMigrate struct {
	upErr      error
	stepsErr   error
	versionVal uint
	versionErr error
	dirty      bool
	forceErr   error
	closeSrc   error
	closeDB    error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Steps(_ int) error            { return m.stepsErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Force(_ int) error            { return m.forceErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSrc, m.closeDB }

func TestMigrator_Up_Success(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	require.NoError(t, m.Up())
}

func TestMigrator_Up_NoChangeIsNotAnError(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}
	require.NoError(t, m.Up())
}

func TestMigrator_Up_PropagatesOtherErrors(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: assertAnErrorValue}}
	err := m.Up()
	assert.Error(t, err)
}

func TestMigrator_Version_NilVersionMeansZero(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)
}

func TestMigrator_Force_RejectsNegativeVersion(t *testing.T) {
	m := &Migrator{m: &mockMigrate{}}
	err := m.Force(-1)
	errutil.AssertErrorCode(t, err, "BAD_PARAMETER")
}

func TestMigrator_Close_CombinesBothErrors(t *testing.T) {
	m := &Migrator{m: &mockMigrate{closeSrc: assertAnErrorValue, closeDB: assertAnErrorValue}}
	err := m.Close()
	assert.Error(t, err)
}

var assertAnErrorValue = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
