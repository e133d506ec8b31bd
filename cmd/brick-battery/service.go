/*
brick-battery - Battery monitoring service for the programmable brick
Copyright (C) 2026, The OpenBrick Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"errors"

	"github.com/OpenBrickProject/brick-battery/battery"
	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"
)

const (
	dbusName = "org.openbrick.Battery"
	dbusPath = "/org/openbrick/Battery"
)

type service struct {
	conn    *dbus.Conn
	battery *battery.Battery
}

func startService(batt *battery.Battery) (*service, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("name already taken")
	}

	s := &service{
		conn:    conn,
		battery: batt,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return s, nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// Properties lists the property names a host monitor can query.
func (s service) Properties() ([]string, *dbus.Error) {
	props := s.battery.Properties()
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = string(p)
	}
	return names, nil
}

// GetProperty returns the current value of one property.
func (s service) GetProperty(name string) (dbus.Variant, *dbus.Error) {
	val, err := s.battery.Get(battery.Property(name))
	if err != nil {
		return dbus.Variant{}, propertyError(err)
	}
	return dbus.MakeVariant(val), nil
}

// SetProperty writes one property. Only "technology" accepts writes, and
// only for the single Unknown to NiMH transition.
func (s service) SetProperty(name, value string) *dbus.Error {
	if err := s.battery.Set(battery.Property(name), value); err != nil {
		return propertyError(err)
	}
	log.Printf("property %s set to %s", name, value)
	return nil
}

// IsWriteable reports whether a property currently accepts writes.
func (s service) IsWriteable(name string) (bool, *dbus.Error) {
	return s.battery.IsWriteable(battery.Property(name)), nil
}

// propertyError keeps the failure kinds apart on the bus so a caller can
// tell a retryable condition from a permanent one.
func propertyError(err error) *dbus.Error {
	switch {
	case errors.Is(err, battery.ErrNotPresent):
		return makeDbusError(".NotPresent", err)
	case errors.Is(err, battery.ErrRetryLater):
		return makeDbusError(".RetryLater", err)
	case errors.Is(err, battery.ErrInvalid):
		return makeDbusError(".InvalidArgument", err)
	default:
		return makeDbusError(".NoData", err)
	}
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + name,
		Body: []interface{}{err.Error()},
	}
}

// sendReading emits the periodic reading signal consumed by battery
// applets that prefer push updates over polling GetProperty.
func (s *service) sendReading(microVolts, microAmps int64) error {
	return s.conn.Emit(dbusPath, dbusName+".Reading", microVolts, microAmps)
}
