/*
Package datastoredb provides an implementation of github.com/alexandre-normand/eurekabot/store's DocumentStore interface
backed by the Google Cloud Datastore.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

The documentstore service is then configured in the bot file with an endpoint of the form datastore://{projectId}
and the path to the credentials file as its key:

	{
	  "type": "documentstore",
	  "name": "eurekalog",
	  "endpoint": "datastore://youppi",
	  "key": "/etc/eurekabot/credentials.json",
	  "database": "EurekaBot",
	  "collection": "EurekaLog"
	}

Register the opener on the store connection:

	conn := store.NewConnection(v, store.OptionOpener(datastoredb.Scheme, datastoredb.Open))
*/
package datastoredb
