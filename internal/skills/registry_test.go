package skills

import (
	"testing"

	"github.com/Zaltu/AIGIS/pkg/aigisclient"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReloader struct {
	lastReloaded string
	err          error
}

func (f *fakeReloader) Reload(name string) error {
	f.lastReloaded = name
	return f.err
}

func testLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

func TestLearnSkillPlainValue(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	err := reg.LearnSkill("greeter", testLogger(), map[string]interface{}{"version": "1.0"})
	require.NoError(t, err)

	result, err := reg.Invoke([]string{"version"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0", result)
}

func TestLearnSkillCallableWithLog(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	var sawLog bool
	fn := aigisclient.SkillFunc(func(args []interface{}, kwargs map[string]interface{}, log hclog.Logger) (interface{}, error) {
		sawLog = log != nil
		return args[0], nil
	})

	require.NoError(t, reg.LearnSkill("math", testLogger(), map[string]interface{}{"echo": fn}))

	result, err := reg.Invoke([]string{"echo"}, []interface{}{42}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, sawLog)
}

func TestLearnSkillCallableWithoutLog(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	fn := aigisclient.SkillFuncNoLog(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return kwargs["name"], nil
	})

	require.NoError(t, reg.LearnSkill("greeter", testLogger(), map[string]interface{}{"hello": fn}))

	result, err := reg.Invoke([]string{"hello"}, nil, map[string]interface{}{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "world", result)
}

func TestLearnSkillNestedPath(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	fn := aigisclient.SkillFuncNoLog(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return args[0].(int) + args[1].(int), nil
	})

	require.NoError(t, reg.LearnSkill("math", testLogger(), map[string]interface{}{"ops.add": fn}))

	result, err := reg.Invoke([]string{"ops", "add"}, []interface{}{1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result)
}

func TestLearnSkillNamespaceLockError(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	require.NoError(t, reg.LearnSkill("one", testLogger(), map[string]interface{}{"math": 1}))

	err := reg.LearnSkill("two", testLogger(), map[string]interface{}{"math.add": 2})
	require.Error(t, err)

	var nsErr *NamespaceLockError
	assert.ErrorAs(t, err, &nsErr)
}

func TestInvokeArgumentMismatchOnNonCallable(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())
	require.NoError(t, reg.LearnSkill("greeter", testLogger(), map[string]interface{}{"version": "1.0"}))

	_, err := reg.Invoke([]string{"version"}, []interface{}{"unexpected"}, nil)
	assert.ErrorIs(t, err, ErrArgumentMismatch)
}

func TestInvokeUnknownPath(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	_, err := reg.Invoke([]string{"nope"}, nil, nil)
	assert.Error(t, err)
}

func TestForgetSkillPrunesOnlyOwnedTopLevel(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())

	require.NoError(t, reg.LearnSkill("greeter", testLogger(), map[string]interface{}{
		"greeter.hello": aigisclient.SkillFuncNoLog(func(a []interface{}, k map[string]interface{}) (interface{}, error) { return "hi", nil }),
	}))
	require.NoError(t, reg.LearnSkill("math", testLogger(), map[string]interface{}{"math.add": 0}))

	reg.ForgetSkill("greeter")

	_, err := reg.Invoke([]string{"greeter", "hello"}, nil, nil)
	assert.Error(t, err)

	_, err = reg.Invoke([]string{"math", "add"}, nil, nil)
	assert.NoError(t, err)
}

func TestForgetSkillIsIdempotent(t *testing.T) {
	reg := NewRegistry(&fakeReloader{}, testLogger())
	require.NoError(t, reg.LearnSkill("greeter", testLogger(), map[string]interface{}{"greeter.hello": "hi"}))

	reg.ForgetSkill("greeter")
	assert.NotPanics(t, func() { reg.ForgetSkill("greeter") })
}

func TestAIGISReloadDelegatesToReloader(t *testing.T) {
	reloader := &fakeReloader{}
	reg := NewRegistry(reloader, testLogger())

	_, err := reg.Invoke([]string{"AIGISReload"}, []interface{}{"greeter"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "greeter", reloader.lastReloaded)
}
