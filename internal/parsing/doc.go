// Package parsing loads model descriptions into a plant.
//
// A model file lists models; each model becomes one model instance holding
// bodies, and each body carries geometries. YAML (.yaml, .yml) and TOML
// (.toml) files share one schema:
//
//	models:
//	  - name: ball
//	    bodies:
//	      - name: ball
//	        mass: 1
//	        position: [0, 0, 0.5]
//	        geometries:
//	          - name: ball
//	            shape: sphere
//	            dimensions: [0.1]
//	            roles: [illustration, proximity]
//	            color: [0.8, 0.2, 0.2, 1]
package parsing
