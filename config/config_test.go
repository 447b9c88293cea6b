package config_test

import (
	"github.com/alexandre-normand/eurekabot/config"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWithDefault(t *testing.T) {
	v := config.NewViperWithDefaults()

	assert.Equal(t, false, v.GetBool(config.DebugKey), "%s should be %t", config.DebugKey, false)
	assert.Equal(t, "development", v.GetString(config.EnvironmentKey), "%s should be %s", config.EnvironmentKey, "development")
	assert.Equal(t, 1, v.GetInt(config.QnATopKey), "%s should be %d", config.QnATopKey, 1)
	assert.Equal(t, 0.3, v.GetFloat64(config.QnAScoreThresholdKey), "%s should be %f", config.QnAScoreThresholdKey, 0.3)
	assert.Equal(t, 5000, v.GetInt(config.DedupeCacheSizeKey), "%s should be %d", config.DedupeCacheSizeKey, 5000)
	assert.Equal(t, 500, v.GetInt(config.UserInfoCacheSizeKey), "%s should be %d", config.UserInfoCacheSizeKey, 500)
	assert.Equal(t, 4, v.GetInt(config.PartitionCountKey), "%s should be %d", config.PartitionCountKey, 4)
	assert.Equal(t, 10, v.GetInt(config.PartitionQueueSizeKey), "%s should be %d", config.PartitionQueueSizeKey, 10)
	assert.Equal(t, 30*time.Second, v.GetDuration(config.DocumentStoreOpenTimeoutKey), "%s should be %v", config.DocumentStoreOpenTimeoutKey, 30*time.Second)
	assert.Equal(t, false, v.GetBool(config.ThreadedRepliesKey), "%s should be %t", config.ThreadedRepliesKey, false)
	assert.NotEmpty(t, v.GetString(config.NoAnswerMessageKey))
	assert.Equal(t, "", v.GetString(config.WelcomeCardTitleKey))
}

func TestLayeredConfigWithDefaultsAndOverrides(t *testing.T) {
	v := viper.New()
	v.Set(config.QnATopKey, 3)
	v.Set(config.NoAnswerMessageKey, "No idea")

	v = config.LayerConfigWithDefaults(v)

	assert.Equal(t, 3, v.GetInt(config.QnATopKey))
	assert.Equal(t, "No idea", v.GetString(config.NoAnswerMessageKey))
	assert.Equal(t, 0.3, v.GetFloat64(config.QnAScoreThresholdKey))
}

func TestGetServicesWithNoServices(t *testing.T) {
	services, err := config.GetServices(viper.New())

	assert.Nil(t, err)
	assert.Empty(t, services)
}

func TestFirstOfTypeReturnsFirstMatch(t *testing.T) {
	v := viper.New()
	v.Set(config.ServicesKey, []interface{}{
		map[string]interface{}{"type": "endpoint", "name": "development", "endpoint": "http://localhost:3978/api/messages"},
		map[string]interface{}{"type": "qna", "name": "eureka", "kbId": "kb-1", "endpointKey": "key-1", "hostname": "https://one.azurewebsites.net/qnamaker"},
		map[string]interface{}{"type": "qna", "name": "other", "kbId": "kb-2", "endpointKey": "key-2", "hostname": "https://two.azurewebsites.net/qnamaker"},
	})

	services, err := config.GetServices(v)
	require.Nil(t, err)
	assert.Len(t, services, 3)

	qna, err := services.FirstOfType(config.QnAServiceType)
	if assert.Nil(t, err) {
		assert.Equal(t, "eureka", qna.Name)
		assert.Equal(t, "kb-1", qna.Get("kbId"))
		assert.Equal(t, "key-1", qna.Get("endpointkey"))
		assert.Equal(t, "https://one.azurewebsites.net/qnamaker", qna.Get("hostname"))
	}
}

func TestFirstOfTypeWithMissingType(t *testing.T) {
	services := config.Services{config.NewServiceDescriptor(config.EndpointServiceType, "development", nil)}

	_, err := services.FirstOfType(config.DocumentStoreServiceType)

	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, config.ErrConfigurationMissing))
		assert.Contains(t, err.Error(), "documentstore")
	}
}

func TestGetServicesWithUntypedDescriptor(t *testing.T) {
	v := viper.New()
	v.Set(config.ServicesKey, []interface{}{map[string]interface{}{"name": "mystery"}})

	_, err := config.GetServices(v)

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "has no type")
	}
}

func TestEndpointByEnvironment(t *testing.T) {
	tests := map[string]struct {
		services         config.Services
		environment      string
		expectedName     string
		expectedFallback bool
		expectedMissing  bool
	}{
		"DevelopmentEndpoint": {
			services:     config.Services{config.NewServiceDescriptor(config.EndpointServiceType, "development", nil)},
			environment:  "development",
			expectedName: "development",
		},
		"ProductionEndpoint": {
			services: config.Services{
				config.NewServiceDescriptor(config.EndpointServiceType, "development", nil),
				config.NewServiceDescriptor(config.EndpointServiceType, "production", nil),
			},
			environment:  "production",
			expectedName: "production",
		},
		"ProductionFallsBackToDevelopment": {
			services:         config.Services{config.NewServiceDescriptor(config.EndpointServiceType, "development", nil)},
			environment:      "production",
			expectedName:     "development",
			expectedFallback: true,
		},
		"DevelopmentDoesNotUseProduction": {
			services:        config.Services{config.NewServiceDescriptor(config.EndpointServiceType, "production", nil)},
			environment:     "development",
			expectedMissing: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			sd, fallback, err := tc.services.Endpoint(tc.environment)

			if tc.expectedMissing {
				assert.True(t, errors.Is(err, config.ErrConfigurationMissing))
			} else if assert.Nil(t, err) {
				assert.Equal(t, tc.expectedName, sd.Name)
				assert.Equal(t, tc.expectedFallback, fallback)
			}
		})
	}
}

func TestLoadBotFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "EurekaChatBot.bot")
	content := `{
  "name": "EurekaChatBot",
  "services": [
    {"type": "endpoint", "name": "development", "id": "1", "appId": "", "appPassword": "xoxb-token"},
    {"type": "documentstore", "name": "logs", "id": "2", "endpoint": "leveldb:///tmp/eureka", "key": "", "database": "eureka", "collection": "logs"}
  ]
}`
	require.Nil(t, os.WriteFile(path, []byte(content), 0600))

	v := viper.New()
	services, err := config.LoadBotFile(v, path)
	require.Nil(t, err)
	assert.Len(t, services, 2)

	ds, err := services.FirstOfType(config.DocumentStoreServiceType)
	if assert.Nil(t, err) {
		assert.Equal(t, "2", ds.ID)
		assert.Equal(t, "eureka", ds.Get("database"))
		assert.Equal(t, "logs", ds.Get("collection"))
	}

	// The services are also made available on the main configuration
	fromViper, err := config.GetServices(v)
	assert.Nil(t, err)
	assert.Len(t, fromViper, 2)
}

func TestLoadBotFileWithMissingFile(t *testing.T) {
	_, err := config.LoadBotFile(viper.New(), filepath.Join(t.TempDir(), "missing.bot"))

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "error reading bot file")
	}
}
