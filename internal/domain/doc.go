// Package domain rasterizes weather front observations onto a regular
// latitude/longitude grid.
//
// # Data Source
//
// Front records come from an objective front-detection dataset distributed as
// NetCDF classic files (one file per month, e.g. rec_front_1979_01.v26.nc).
// Each file stores three variables, one per front category:
//
//	cold_fronts(time, number, point, data)
//	warm_fronts(time, number, point, data)
//	stat_fronts(time, number, point, data)
//
// "number" indexes fronts within a time step, "point" indexes the ordered
// points along a front, and "data" holds the per-point fields.
//
// # Field Layout
//
//	data[0]  latitude, degrees north
//	data[1]  longitude, degrees east in [0, 360)
//	data[2]  wet-bulb potential temperature gradient (thetaw_gradient)
//	data[3]  front speed, u component
//	data[4]  front speed, v component
//
// Files may carry more than five fields; only the first five are read.
//
// # Sentinel Padding
//
// The point dimension is sized for the longest front in the file. Shorter
// fronts are padded with a latitude below -1000 (the dataset uses large
// negative fill values). Reading a front stops at the first such point;
// anything after it is padding even if it looks like data. Unused front slots
// start with a sentinel and contribute nothing.
//
// # Binning Rules
//
// Every valid point goes to the grid cell with the nearest latitude and
// nearest longitude (lowest index on an exact tie). A longitude past the last
// longitude bin that is closer to the first bin across the 0/360 seam goes to
// longitude index 0. Points are visited front by front, point by point, and a
// later point landing in an occupied cell overwrites it. The front-id map
// stores the front's index within the time step, so front 0 and "no front"
// both read as 0.
//
// # Category Merge
//
// The three scalar fields are merged across categories with warm taking
// precedence over cold and cold over stationary. A cell whose warm value is
// exactly 0.0 counts as empty, so a genuine zero can be masked by a lower
// category. Front-id maps are never merged.
package domain
