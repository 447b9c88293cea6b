package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Service types found in the services list
const (
	// QnAServiceType marks a knowledge base (question and answer) service
	QnAServiceType = "qna"
	// DocumentStoreServiceType marks a document store service
	DocumentStoreServiceType = "documentstore"
	// EndpointServiceType marks a channel endpoint service
	EndpointServiceType = "endpoint"
)

// Common service descriptor fields
const (
	typeField = "type"
	nameField = "name"
	idField   = "id"
)

// ErrConfigurationMissing is returned when no service descriptor matches a required service type
var ErrConfigurationMissing = errors.New("configuration missing")

// ServiceDescriptor describes one external service. Fields other than the type, name and id are kept
// as strings with lowercased keys
type ServiceDescriptor struct {
	Type   string
	Name   string
	ID     string
	fields map[string]string
}

// Get returns the value of a descriptor field (case-insensitive) or the empty string if missing
func (sd ServiceDescriptor) Get(field string) string {
	return sd.fields[strings.ToLower(field)]
}

// String returns a friendly description of the ServiceDescriptor
func (sd ServiceDescriptor) String() string {
	return fmt.Sprintf("%s[%s]", sd.Type, sd.Name)
}

// NewServiceDescriptor creates a new ServiceDescriptor from its type, name and fields
func NewServiceDescriptor(serviceType string, name string, fields map[string]string) (sd ServiceDescriptor) {
	sd.Type = serviceType
	sd.Name = name
	sd.fields = make(map[string]string)
	for k, v := range fields {
		sd.fields[strings.ToLower(k)] = v
	}
	sd.ID = sd.fields[idField]

	return sd
}

// Services is an ordered list of service descriptors
type Services []ServiceDescriptor

// FirstOfType returns the first service descriptor of the given type. If there is none,
// an error wrapping ErrConfigurationMissing is returned
func (s Services) FirstOfType(serviceType string) (sd ServiceDescriptor, err error) {
	for _, d := range s {
		if d.Type == serviceType {
			return d, nil
		}
	}

	return ServiceDescriptor{}, errors.Wrapf(ErrConfigurationMissing, "no service of type [%s] found", serviceType)
}

// Endpoint returns the endpoint service named after the environment. In production, the development
// endpoint is used when there is no production one and fallback is returned as true
func (s Services) Endpoint(environment string) (sd ServiceDescriptor, fallback bool, err error) {
	if sd, ok := s.named(EndpointServiceType, environment); ok {
		return sd, false, nil
	}

	if environment == ProductionEnvironment {
		if sd, ok := s.named(EndpointServiceType, DevelopmentEnvironment); ok {
			return sd, true, nil
		}
	}

	return ServiceDescriptor{}, false, errors.Wrapf(ErrConfigurationMissing, "no endpoint with name [%s] found", environment)
}

// named returns the first service of the given type with the given name
func (s Services) named(serviceType string, name string) (sd ServiceDescriptor, ok bool) {
	for _, d := range s {
		if d.Type == serviceType && d.Name == name {
			return d, true
		}
	}

	return ServiceDescriptor{}, false
}

// GetServices returns the services list set on the viper instance under ServicesKey
func GetServices(v *viper.Viper) (services Services, err error) {
	raw := v.Get(ServicesKey)
	if raw == nil {
		return Services{}, nil
	}

	entries, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid [%s] configuration", ServicesKey)
	}

	services = make(Services, 0, len(entries))
	for i, e := range entries {
		fields, err := cast.ToStringMapStringE(e)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid service descriptor at index [%d]", i)
		}

		lowered := make(map[string]string)
		for k, v := range fields {
			lowered[strings.ToLower(k)] = v
		}

		if lowered[typeField] == "" {
			return nil, fmt.Errorf("service descriptor at index [%d] has no type", i)
		}

		services = append(services, NewServiceDescriptor(lowered[typeField], lowered[nameField], lowered))
	}

	return services, nil
}

// LoadBotFile reads a bot file (json) and sets its services list on v under ServicesKey
func LoadBotFile(v *viper.Viper, path string) (services Services, err error) {
	bf := viper.New()
	bf.SetConfigFile(path)
	bf.SetConfigType("json")

	if err = bf.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "error reading bot file [%s]", path)
	}

	if services, err = GetServices(bf); err != nil {
		return nil, errors.Wrapf(err, "error parsing bot file [%s]", path)
	}

	v.Set(ServicesKey, bf.Get(ServicesKey))

	return services, nil
}
