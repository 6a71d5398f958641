package nacos

import (
	"errors"
	"testing"

	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNaming struct {
	registered []vo.RegisterInstanceParam
	instance   *model.Instance
	err        error
}

func (f *fakeNaming) RegisterInstance(p vo.RegisterInstanceParam) (bool, error) {
	f.registered = append(f.registered, p)
	return f.err == nil, f.err
}

func (f *fakeNaming) DeregisterInstance(vo.DeregisterInstanceParam) (bool, error) {
	return true, f.err
}

func (f *fakeNaming) SelectOneHealthyInstance(p vo.SelectOneHealthInstanceParam) (*model.Instance, error) {
	return f.instance, f.err
}

func TestResolveBuildsURL(t *testing.T) {
	c := NewWithNamingClient(&fakeNaming{instance: &model.Instance{Ip: "10.0.0.3", Port: 8090}}, "DEFAULT_GROUP")
	u, err := c.Resolve("payment-gateway")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.3:8090", u)
}

func TestResolveNoInstance(t *testing.T) {
	c := NewWithNamingClient(&fakeNaming{}, "DEFAULT_GROUP")
	_, err := c.Resolve("payment-gateway")
	assert.Error(t, err)

	c = NewWithNamingClient(&fakeNaming{err: errors.New("timeout")}, "DEFAULT_GROUP")
	_, err = c.Resolve("payment-gateway")
	assert.Error(t, err)
}

func TestRegisterUsesGroup(t *testing.T) {
	f := &fakeNaming{}
	c := NewWithNamingClient(f, "TX_GROUP")
	require.NoError(t, c.RegisterServiceInstance("txflow", "127.0.0.1", 8080))
	require.Len(t, f.registered, 1)
	assert.Equal(t, "TX_GROUP", f.registered[0].GroupName)
	assert.True(t, f.registered[0].Ephemeral)
}

func TestParseServerConfigs(t *testing.T) {
	cfgs, err := ParseServerConfigs("a:8848, b:8849")
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "b", cfgs[1].IpAddr)
	assert.EqualValues(t, 8849, cfgs[1].Port)

	_, err = ParseServerConfigs("a")
	assert.Error(t, err)
	_, err = ParseServerConfigs("a:x")
	assert.Error(t, err)
}
