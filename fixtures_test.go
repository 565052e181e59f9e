package settings

import "testing"

// Test documents mimic the definition chain a concrete printer ships with:
// concrete machine → printer family → base machine.
const baseDefinition = `{
	"name": "Base Machine",
	"settings": {
		"resolution": {
			"type": "category",
			"label": "Quality",
			"children": {
				"layer_height": {
					"label": "Layer Height",
					"type": "float",
					"unit": "mm",
					"default_value": 0.2,
					"minimum_value": 0.0,
					"maximum_value": 0.8,
					"minimum_value_warning": 0.04,
					"maximum_value_warning": 0.32
				},
				"line_width": {
					"label": "Line Width",
					"type": "float",
					"unit": "mm",
					"default_value": 0.4,
					"value": "machine_nozzle_size",
					"children": {
						"wall_line_width": {
							"label": "Wall Line Width",
							"type": "float",
							"unit": "mm",
							"default_value": 0.4,
							"value": "line_width"
						}
					}
				}
			}
		},
		"machine_settings": {
			"type": "category",
			"label": "Machine",
			"children": {
				"machine_nozzle_size": {
					"label": "Nozzle Diameter",
					"type": "float",
					"unit": "mm",
					"default_value": 0.4,
					"minimum_value": 0.1
				},
				"machine_heated_bed": {
					"label": "Heated Bed",
					"type": "bool",
					"default_value": false
				},
				"machine_name": {
					"label": "Machine Name",
					"type": "str",
					"default_value": "Unknown"
				}
			}
		},
		"infill": {
			"type": "category",
			"label": "Infill",
			"children": {
				"infill_sparse_density": {
					"label": "Infill Density",
					"type": "float",
					"unit": "%",
					"default_value": 20,
					"minimum_value": 0,
					"maximum_value": 100
				},
				"infill_pattern": {
					"label": "Infill Pattern",
					"type": "enum",
					"default_value": "grid",
					"options": {
						"grid": "Grid",
						"lines": "Lines",
						"triangles": "Triangles"
					}
				}
			}
		},
		"shell": {
			"type": "category",
			"label": "Walls",
			"children": {
				"wall_line_count": {
					"label": "Wall Line Count",
					"type": "int",
					"default_value": 2,
					"minimum_value": 0,
					"maximum_value": 10
				},
				"top_layers": {
					"label": "Top Layers",
					"type": "int",
					"default_value": 4,
					"minimum_value": 0
				},
				"bottom_layers": {
					"label": "Bottom Layers",
					"type": "int",
					"default_value": 4,
					"minimum_value": 0
				}
			}
		},
		"speed": {
			"type": "category",
			"label": "Speed",
			"children": {
				"speed_print": {
					"label": "Print Speed",
					"type": "float",
					"unit": "mm/s",
					"default_value": 60,
					"minimum_value": 0.1,
					"minimum_value_warning": 1,
					"maximum_value_warning": 150
				},
				"speed_wall": {
					"label": "Wall Speed",
					"type": "float",
					"unit": "mm/s",
					"default_value": 30,
					"value": "speed_print / 2"
				}
			}
		},
		"support": {
			"type": "category",
			"label": "Support",
			"children": {
				"support_enable": {
					"label": "Generate Support",
					"type": "bool",
					"default_value": false
				},
				"support_tree_enable": {
					"label": "Generate Support",
					"type": "bool",
					"default_value": false
				},
				"material_print_temperature": {
					"label": "Printing Temperature",
					"type": "float",
					"unit": "C",
					"default_value": 210,
					"minimum_value": 0,
					"maximum_value": 365
				},
				"material_bed_temperature": {
					"label": "Bed Temperature",
					"type": "float",
					"unit": "C",
					"default_value": 60,
					"minimum_value": 0,
					"maximum_value": 200
				},
				"cool_fan_speed": {
					"label": "Fan Speed",
					"type": "float",
					"unit": "%",
					"default_value": 100,
					"minimum_value": 0,
					"maximum_value": 100
				},
				"cool_fan_speed_min": {
					"label": "Minimum Fan Speed",
					"type": "float",
					"unit": "%",
					"default_value": 100,
					"minimum_value": 0,
					"maximum_value": 100
				},
				"cool_fan_speed_max": {
					"label": "Maximum Fan Speed",
					"type": "float",
					"unit": "%",
					"default_value": 100,
					"minimum_value": 0,
					"maximum_value": 100
				}
			}
		}
	}
}`

const familyDefinition = `{
	"name": "Printer Family",
	"inherits": "machine_base",
	"overrides": {
		"layer_height": {"default_value": 0.16},
		"machine_name": {"default_value": "Family Printer"}
	}
}`

const printerDefinition = `{
	"name": "Concrete Printer",
	"inherits": "printer_family",
	"overrides": {
		"machine_nozzle_size": {"default_value": 0.6},
		"machine_heated_bed": {"default_value": true}
	}
}`

func testSource() MapSource {
	return MapSource{
		"machine_base":   []byte(baseDefinition),
		"printer_family": []byte(familyDefinition),
		"my_printer":     []byte(printerDefinition),
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := Load(testSource(), "my_printer")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return registry
}
