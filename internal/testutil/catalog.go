// Package testutil provides shared fixtures for tests: a deterministic
// synthetic parts catalog and a deterministic embedder.
package testutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// CatalogSize is the number of records in Catalog.
const CatalogSize = 500

// Well-known records present in every generated catalog.
var (
	EngineMount = domain.Part{
		domain.FieldPartNumber:   "ENG-123-ABC",
		domain.FieldPartName:     "Engine Mount",
		domain.FieldSystem:       "ENGINE",
		domain.FieldManufacturer: "Bosch",
		domain.FieldMaterial:     "rubber",
		domain.FieldPartType:     "mount",
		domain.FieldCost:         "₹4,500",
		domain.FieldStock:        "12",
	}
	BrakePadSet = domain.Part{
		domain.FieldPartNumber:   "BRK-001",
		domain.FieldPartName:     "Brake Pad Set",
		domain.FieldSystem:       "BRAKES",
		domain.FieldManufacturer: "Brembo",
		domain.FieldMaterial:     "ceramic",
		domain.FieldPartType:     "pad",
		domain.FieldCost:         "₹2,500",
		domain.FieldStock:        "15",
	}
)

type systemSpec struct {
	name   string
	prefix string
	parts  []string
	subs   []string
}

var systems = []systemSpec{
	{"ENGINE", "ENG", []string{"Piston Ring", "Timing Belt", "Oil Filter", "Gasket Kit", "Camshaft Sensor"}, []string{"lubrication", "valvetrain"}},
	{"BRAKES", "BRK", []string{"Brake Disc", "Brake Caliper", "Brake Hose", "Brake Drum", "Brake Pad"}, []string{"front axle", "rear axle"}},
	{"SUSPENSION", "SUS", []string{"Shock Absorber", "Coil Spring", "Control Arm", "Ball Joint"}, []string{"front axle", "rear axle"}},
	{"ELECTRICAL", "ELC", []string{"Alternator", "Starter Motor", "Spark Plug", "Ignition Coil", "Headlamp"}, []string{"charging", "lighting"}},
	{"TRANSMISSION", "TRN", []string{"Clutch Plate", "Gear Shaft", "Flywheel", "Drive Shaft"}, []string{"manual", "automatic"}},
	{"COOLING", "COL", []string{"Radiator", "Water Pump", "Thermostat", "Cooling Fan"}, []string{"radiator circuit", "heater circuit"}},
	{"EXHAUST", "EXH", []string{"Muffler", "Catalytic Converter", "Exhaust Manifold", "Tail Pipe"}, []string{"hot end", "cold end"}},
	{"STEERING", "STR", []string{"Tie Rod End", "Steering Rack", "Power Steering Pump"}, []string{"linkage", "hydraulic"}},
}

var (
	manufacturers = []string{"Bosch", "Denso", "Valeo", "Brembo", "Mahle", "ZF", "NGK", "Continental"}
	materials     = []string{"aluminum", "steel", "rubber", "plastic", "ceramic", "cast iron"}
	features      = []string{"heavy duty", "lightweight", "corrosion resistant", "oem", "heat resistant"}
)

// Catalog returns the 500-record synthetic catalog: EngineMount, BrakePadSet
// and 498 generated records. The result is identical on every call.
func Catalog() []domain.Part {
	out := make([]domain.Part, 0, CatalogSize)
	out = append(out, EngineMount.Clone(), BrakePadSet.Clone())
	for i := 0; len(out) < CatalogSize; i++ {
		out = append(out, generatedPart(i))
	}
	return out
}

// Records returns Catalog normalised in order.
func Records() []domain.Record {
	parts := Catalog()
	out := make([]domain.Record, len(parts))
	for i, p := range parts {
		out[i] = domain.NormaliseRecord(i, p)
	}
	return out
}

func generatedPart(i int) domain.Part {
	sys := systems[i%len(systems)]
	name := sys.parts[(i/len(systems))%len(sys.parts)]

	p := domain.Part{
		domain.FieldPartNumber:   fmt.Sprintf("%s-%d", sys.prefix, 1000+i),
		domain.FieldPartName:     name,
		domain.FieldSystem:       sys.name,
		domain.FieldSubSystem:    sys.subs[i%len(sys.subs)],
		domain.FieldManufacturer: manufacturers[(i*3)%len(manufacturers)],
		domain.FieldMaterial:     materials[(i*5)%len(materials)],
		domain.FieldPartType:     strings.ToLower(strings.Fields(name)[len(strings.Fields(name))-1]),
		domain.FieldFeature:      features[(i*7)%len(features)],
	}

	// Every 25th record has no price and every 9th is out of stock.
	if i%25 != 0 {
		p[domain.FieldCost] = rupees(300 + (i*137)%9700)
	}
	switch {
	case i%9 == 0:
		p[domain.FieldStock] = "0"
	case i%4 == 0:
		p[domain.FieldStock] = fmt.Sprintf("%d units", (i*11)%60+1)
	default:
		p[domain.FieldStock] = int64((i*11)%60 + 1)
	}
	if i%10 == 0 {
		p[domain.FieldOEMPartNumber] = fmt.Sprintf("OEM%05d", 20000+i)
	}
	return p
}

// rupees formats n as "₹12,345".
func rupees(n int) string {
	s := strconv.Itoa(n)
	if len(s) > 3 {
		s = s[:len(s)-3] + "," + s[len(s)-3:]
	}
	return "₹" + s
}
