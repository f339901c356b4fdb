package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("op", "user", nil))

	var de *DuplicateError
	err := Classify("op", "user", gorm.ErrDuplicatedKey)
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "user", de.Entity)

	err = Classify("op", "user", gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	var se *StorageError
	underlying := errors.New("disk on fire")
	err = Classify("write", "user", underlying)
	assert.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, underlying)
}

func TestClassifyPassthrough(t *testing.T) {
	ve := Validation("name", "required")
	assert.Equal(t, ve, Classify("op", "user", ve))

	assert.ErrorIs(t, Classify("op", "t", ErrTenantNotFound), ErrTenantNotFound)
	assert.ErrorIs(t, Classify("op", "t", ErrStorageUnavailable), ErrStorageUnavailable)
	assert.ErrorIs(t, Classify("op", "t", ErrNotFound), ErrNotFound)
}
