package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/axis/errors"
)

func TestFieldSanitize(t *testing.T) {
	f := Field{Key: "contact", Type: TypeString, Rules: "email", Default: "nobody@example.com"}

	v, err := f.Sanitize("someone@example.com")
	require.NoError(t, err)
	assert.Equal(t, "someone@example.com", v)

	v, err = f.Sanitize("not-an-email")
	require.Error(t, err)
	assert.Equal(t, "nobody@example.com", v)
	assert.True(t, errors.IsRecoverable(err))
	assert.True(t, errors.Is(err, ErrVerification))

	v, err = f.Sanitize(42)
	assert.Error(t, err)
	assert.Equal(t, "nobody@example.com", v)

	v, err = f.Sanitize(nil)
	assert.NoError(t, err)
	assert.Equal(t, "nobody@example.com", v)
}

func TestFieldSanitizeTypes(t *testing.T) {
	count := Field{Key: "count", Type: TypeInteger, Rules: "min=1,max=5", Default: 1, Required: true}

	v, err := count.Sanitize(3)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = count.Sanitize(9)
	assert.Error(t, err)
	assert.Equal(t, 1, v)

	_, err = count.Sanitize(nil)
	assert.Error(t, err, "required")

	ratio := Field{Key: "ratio", Type: TypeNumber}
	_, err = ratio.Sanitize(2)
	assert.NoError(t, err, "integers are numbers")

	flags := Field{Key: "flags", Type: TypeArray}
	_, err = flags.Sanitize([]string{"a"})
	assert.NoError(t, err)
	_, err = flags.Sanitize(map[string]any{})
	assert.Error(t, err)
}

func TestFieldSanitizeInvalidRule(t *testing.T) {
	f := Field{Key: "pages", Type: TypeInteger, Rules: "min=abc", Default: 10}

	var (
		v   any
		err error
	)
	require.NotPanics(t, func() { v, err = f.Sanitize(5) })
	assert.Equal(t, 10, v)
	assert.True(t, errors.Is(err, ErrVerification))
	assert.True(t, errors.Is(err, ErrInvalidRule))

	assert.Error(t, f.validateRules())
	assert.NoError(t, Field{Key: "pages", Type: TypeInteger, Rules: "min=1"}.validateRules())
	assert.NoError(t, Field{Key: "motto", Rules: "required"}.validateRules())
	assert.Error(t, Field{Key: "flag", Type: TypeBoolean, Rules: "min=1"}.validateRules())
}

func testRegistry(t *testing.T, reg Registry) {
	t.Helper()

	require.NoError(t, reg.RegisterMeta("", "", Field{Key: "isbn", Type: TypeString}))
	require.NoError(t, reg.RegisterMeta("post", "", Field{Key: "isbn", Type: TypeString, Label: "ISBN"}))
	require.NoError(t, reg.RegisterMeta("post", "book", Field{Key: "code", Type: TypeString, Label: "Book code"}))
	require.NoError(t, reg.RegisterMeta("post", "movie", Field{Key: "code", Type: TypeString, Label: "Movie code"}))
	require.NoError(t, reg.RegisterOption("general", Field{Key: "greeting", Default: "hello", Autoload: true}))
	require.NoError(t, reg.RegisterPostType("book", Args{"public": true}))
	require.NoError(t, reg.RegisterTaxonomy("genre", []string{"book", "post"}, Args{"hierarchical": true}))

	metas, err := reg.Declarations(KindMeta)
	require.NoError(t, err)
	require.Len(t, metas, 3, "same object type, subtype and key replace each other")
	assert.Equal(t, "post", metas[0].Scope)
	assert.Empty(t, metas[0].Subtype)
	assert.Equal(t, "ISBN", metas[0].Field.Label)
	assert.Equal(t, "book", metas[1].Subtype)
	assert.Equal(t, "Book code", metas[1].Field.Label)
	assert.Equal(t, "movie", metas[2].Subtype)
	assert.Equal(t, "Movie code", metas[2].Field.Label)

	taxonomies, err := reg.Declarations(KindTaxonomy)
	require.NoError(t, err)
	require.Len(t, taxonomies, 1)
	assert.Equal(t, "book,post", taxonomies[0].Scope)
	assert.Equal(t, []string{"book", "post"}, taxonomies[0].ObjectTypes)
	assert.Equal(t, true, taxonomies[0].Args["hierarchical"])

	all, err := reg.Declarations("")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	err = reg.RegisterPostType("a_post_type_name_that_is_too_long", nil)
	assert.True(t, errors.Is(err, ErrInvalidDeclaration))
	assert.Error(t, reg.RegisterMeta("post", "", Field{}))
	assert.Error(t, reg.RegisterOption("general", Field{Key: "x", Type: "date"}))

	err = reg.RegisterMeta("post", "book", Field{Key: "pages", Type: TypeInteger, Rules: "min=abc"})
	assert.True(t, errors.Is(err, ErrInvalidDeclaration))
	assert.True(t, errors.Is(err, ErrInvalidRule))
	err = reg.RegisterOption("general", Field{Key: "motto", Rules: "no_such_rule"})
	assert.True(t, errors.Is(err, ErrInvalidDeclaration))

	after, err := reg.Declarations("")
	require.NoError(t, err)
	assert.Len(t, after, 6, "rejected declarations are not stored")
}

func TestMemoryRegistry(t *testing.T) {
	testRegistry(t, NewMemory())
}

func TestMemoryRegistryDoesNotAlias(t *testing.T) {
	reg := NewMemory()
	args := Args{"public": true}
	require.NoError(t, reg.RegisterPostType("book", args))

	args["public"] = false
	decls, _ := reg.Declarations(KindPostType)
	assert.Equal(t, true, decls[0].Args["public"])

	decls[0].Args["public"] = "mutated"
	again, _ := reg.Declarations(KindPostType)
	assert.Equal(t, true, again[0].Args["public"])
}

func TestGormRegistry(t *testing.T) {
	db, err := Open(StoreConfig{Driver: DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)

	reg, err := NewGorm(db)
	require.NoError(t, err)
	testRegistry(t, reg)

	sqlDB, err := reg.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(StoreConfig{Driver: "oracle", DSN: "x"}, nil)
	assert.True(t, errors.Is(err, ErrStore))

	_, err = Open(StoreConfig{Driver: DriverMySQL}, nil)
	assert.Error(t, err, "dsn is required with a driver")

	assert.False(t, StoreConfig{}.Enabled())
}

func TestTranslatedValidationErrors(t *testing.T) {
	f := Field{Key: "contact", Type: TypeString, Rules: "email"}

	_, err := f.Sanitize("not-an-email")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Messages, 1)
	assert.Contains(t, verr.Messages[0], "must be a valid email address")

	plain := errors.Configuration("plain")
	assert.Equal(t, error(plain), Translate(plain))
	assert.Nil(t, Translate(nil))
}
