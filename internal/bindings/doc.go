// Package bindings models the live Python binding environment that the
// coverage check probes.
//
// An Environment resolves class names to Objects, and an Object answers
// attribute queries the way Python's hasattr and dir do. Table is an
// Environment loaded from a symbol dump produced by importing the binding
// modules, so the check can run without an interpreter.
//
// Symbol dump format (YAML or JSON):
//
//	modules:
//	  - name: qgis.core
//	    classes:
//	      QgsPoint: [x, y, setX, setY]
//	      QgsFeatureRequest::OrderBy: [list, dump]
//	  - name: qgis.gui
//	    classes:
//	      QgsMapCanvas: [refresh]
//
// Modules are flattened in order, so a later module shadows a class of the
// same name from an earlier one, as "from module import *" does.
package bindings
