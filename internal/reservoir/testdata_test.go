package reservoir

const testInventory = `#
# U.S. Geological Survey
# site inventory
#
site_no	station_nm	dec_lat_va	dec_long_va	coord_datum_cd
15s	50s	16s	16s	10s
01234567	Lake Test	40.0	-120.5	NAD83
07654321	Dry Lake	38.25	-121.75	NAD83
`

const testSeries = `# ---------------------------------- WARNING ----------------------------------------
# Data provided for site 01234567
#    TS_ID       Parameter Description
#    12345       00054     Reservoir storage, acre feet
#
agency_cd	site_no	datetime	tz_cd	12345_00054	12345_00054_cd
5s	15s	20d	6s	14n	10s
USGS	01234567	2014-01-01 00:00	PST	100	A
USGS	01234567	2014-01-01 01:00	PST	200	A
USGS	01234567	2014-01-31 23:00	PST	300	A
USGS	01234567	2014-02-01 00:00	PST	400	A
`
